package service

import (
	"context"
	"errors"
	"testing"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
)

func entryReq(start, end string) *dto.CreateScheduleEntryRequest {
	return &dto.CreateScheduleEntryRequest{StartTime: start, EndTime: end}
}

func entryIDs(rows []dto.ScheduleEntryResponse) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustCreateEntry(t *testing.T, env *testEnv, key model.ScopeKey, start, end string) string {
	t.Helper()
	resp, err := env.entries.Create(context.Background(), key, entryReq(start, end), scheduler)
	if err != nil {
		t.Fatalf("创建排班条目失败: %v", err)
	}
	return resp.Entry.ID
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func TestEntryCreate_AppendsAfterMax(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "", "")
	ctx := context.Background()

	first := mustCreateEntry(t, env, key, "08:00", "09:00")
	second := mustCreateEntry(t, env, key, "09:00", "10:00")
	if err := env.entries.Delete(ctx, first, scheduler); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	resp, err := env.entries.Create(ctx, key, entryReq("10:00", "11:00"), scheduler)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if resp.Entry.SortOrder != 3 {
		t.Errorf("删除后不重排，新条目应为 max+1=3，实际 %d", resp.Entry.SortOrder)
	}
	if got := env.store.entries[second].SortOrder; got != 2 {
		t.Errorf("其余条目排序值不应变化，实际 %d", got)
	}
}

func TestEntryCreate_Validation(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "", "")
	ctx := context.Background()

	tests := []struct {
		name    string
		key     model.ScopeKey
		req     *dto.CreateScheduleEntryRequest
		actor   Actor
		wantErr error
	}{
		{"结束早于开始", key, entryReq("10:00", "09:00"), scheduler, ErrValidation},
		{"时间相等", key, entryReq("10:00", "10:00"), scheduler, ErrValidation},
		{"非法时间", key, entryReq("9am", "10:00"), scheduler, ErrValidation},
		{"无账本", scope(provA, school1, "Sunday"), entryReq("09:00", "10:00"), scheduler, ErrCapacityNotFound},
		{"只读角色", key, entryReq("09:00", "10:00"), staff, ErrForbidden},
		{"编辑他人作用域", key, entryReq("09:00", "10:00"), providerActor(provB), ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.entries.Create(ctx, tt.key, tt.req, tt.actor); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}
	if len(env.store.entries) != 0 {
		t.Errorf("校验失败不应写入，实际 %d 行", len(env.store.entries))
	}
}

// 引用的服务对象必须当前分配在同一作用域
func TestEntryCreate_ReferentialIntegrity(t *testing.T) {
	env := setupTestEnv(t)
	mon := scope(provA, school1, "Monday")
	tue := scope(provA, school1, "Tuesday")
	env.seedCapacity(mon, 3, 2, "", "")
	env.seedCapacity(tue, 3, 3, "", "")
	env.seedClient("x", school1, &mon)
	ctx := context.Background()

	req := entryReq("09:00", "10:00")
	req.ClientID = strPtr("x")
	_, err := env.entries.Create(ctx, tue, req, scheduler)
	var refErr *ReferentialConflictError
	if !errors.As(err, &refErr) || !errors.Is(err, ErrReferentialConflict) {
		t.Fatalf("期望 ReferentialConflictError，实际 %v", err)
	}
	if len(refErr.ClientIDs) != 1 || refErr.ClientIDs[0] != "x" {
		t.Errorf("错误应列出冲突的服务对象，实际 %v", refErr.ClientIDs)
	}
	if len(env.store.entries) != 0 {
		t.Error("引用冲突时不应写入")
	}

	resp, err := env.entries.Create(ctx, mon, req, scheduler)
	if err != nil {
		t.Fatalf("同作用域引用应成功: %v", err)
	}
	if resp.Entry.ClientID == nil || *resp.Entry.ClientID != "x" {
		t.Errorf("client_id 未保存: %+v", resp.Entry)
	}
}

func TestEntryCreate_Warnings(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "08:00:00", "12:00:00")
	ctx := context.Background()
	existing := mustCreateEntry(t, env, key, "09:00", "10:00")

	// 相邻不算重叠（半开区间）
	resp, err := env.entries.Create(ctx, key, entryReq("10:00", "11:00"), scheduler)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("相邻区间不应有警告: %+v", resp.Warnings)
	}

	resp, err = env.entries.Create(ctx, key, entryReq("09:30", "10:30"), scheduler)
	if err != nil {
		t.Fatalf("重叠条目仍应写入: %v", err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Type != dto.WarningOverlap {
		t.Fatalf("期望一条重叠警告，实际 %+v", resp.Warnings)
	}
	if len(resp.Warnings[0].Overlaps) != 2 || resp.Warnings[0].Overlaps[0].ID != existing {
		t.Errorf("重叠列表不正确: %+v", resp.Warnings[0].Overlaps)
	}

	resp, err = env.entries.Create(ctx, key, entryReq("11:30", "12:30"), scheduler)
	if err != nil {
		t.Fatalf("超出时段条目仍应写入: %v", err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Type != dto.WarningOutsideHours {
		t.Fatalf("期望超出工作时段警告，实际 %+v", resp.Warnings)
	}
	if w := resp.Warnings[0].Window; w == nil || w.StartTime != "08:00" || w.EndTime != "12:00" {
		t.Errorf("警告应携带工作时段，实际 %+v", w)
	}
}

// ────────────────────── Update ──────────────────────

func TestEntryUpdate(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	other := scope(provA, school1, "Tuesday")
	env.seedCapacity(key, 3, 2, "", "")
	env.seedCapacity(other, 3, 2, "", "")
	env.seedClient("in", school1, &key)
	env.seedClient("out", school1, &other)
	ctx := context.Background()

	mustCreateEntry(t, env, key, "08:00", "09:00")
	id := mustCreateEntry(t, env, key, "09:00", "10:00")

	resp, err := env.entries.Update(ctx, id, &dto.UpdateScheduleEntryRequest{
		ClientID: strPtr("in"),
		EndTime:  strPtr("10:30"),
		Room:     strPtr("A-101"),
	}, providerActor(provA))
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Entry.SortOrder != 2 || resp.Entry.EndTime != "10:30" || *resp.Entry.Room != "A-101" {
		t.Errorf("更新结果不正确: %+v", resp.Entry)
	}

	if _, err := env.entries.Update(ctx, id, &dto.UpdateScheduleEntryRequest{ClientID: strPtr("out")}, scheduler); !errors.Is(err, ErrReferentialConflict) {
		t.Errorf("引用其他作用域的服务对象期望 ErrReferentialConflict，实际 %v", err)
	}
	if _, err := env.entries.Update(ctx, id, &dto.UpdateScheduleEntryRequest{StartTime: strPtr("11:00")}, scheduler); !errors.Is(err, ErrValidation) {
		t.Errorf("开始晚于结束期望 ErrValidation，实际 %v", err)
	}
	if got := env.store.entries[id]; got.StartTime != "09:00" || got.ClientID == nil {
		t.Errorf("失败的更新不应落库: %+v", got)
	}

	resp, err = env.entries.Update(ctx, id, &dto.UpdateScheduleEntryRequest{ClientID: strPtr("")}, scheduler)
	if err != nil {
		t.Fatalf("清除 client_id 应成功: %v", err)
	}
	if resp.Entry.ClientID != nil {
		t.Errorf("client_id 应被清除: %v", *resp.Entry.ClientID)
	}

	if _, err := env.entries.Update(ctx, "missing", &dto.UpdateScheduleEntryRequest{}, scheduler); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("期望 ErrScheduleEntryNotFound，实际 %v", err)
	}
}

// ────────────────────── Move ──────────────────────

func TestEntryMove(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "", "")
	ctx := context.Background()
	a := mustCreateEntry(t, env, key, "08:00", "09:00")
	b := mustCreateEntry(t, env, key, "09:00", "10:00")
	c := mustCreateEntry(t, env, key, "10:00", "11:00")

	rows, err := env.entries.Move(ctx, c, DirectionUp, scheduler)
	if err != nil {
		t.Fatalf("上移失败: %v", err)
	}
	if got := entryIDs(rows); !sameIDs(got, []string{a, c, b}) {
		t.Errorf("上移后顺序不正确: %v", got)
	}

	rows, err = env.entries.Move(ctx, c, DirectionDown, scheduler)
	if err != nil {
		t.Fatalf("下移失败: %v", err)
	}
	if got := entryIDs(rows); !sameIDs(got, []string{a, b, c}) {
		t.Errorf("上移再下移应还原，实际 %v", got)
	}

	// 边界：原样返回
	rows, err = env.entries.Move(ctx, a, DirectionUp, scheduler)
	if err != nil {
		t.Fatalf("边界移动不应报错: %v", err)
	}
	if got := entryIDs(rows); !sameIDs(got, []string{a, b, c}) {
		t.Errorf("边界移动应不变，实际 %v", got)
	}
	if env.store.entries[a].SortOrder != 1 {
		t.Error("边界移动不应写排序值")
	}

	if _, err := env.entries.Move(ctx, a, "sideways", scheduler); !errors.Is(err, ErrValidation) {
		t.Errorf("非法方向期望 ErrValidation，实际 %v", err)
	}
	if _, err := env.entries.Move(ctx, "missing", DirectionUp, scheduler); !errors.Is(err, ErrScheduleEntryNotFound) {
		t.Errorf("期望 ErrScheduleEntryNotFound，实际 %v", err)
	}
}

func TestEntryMove_EqualSortOrder(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "", "")
	env.store.entries["e1"] = model.ScheduleEntry{ScheduleEntryID: "e1", ProviderID: provA, SchoolID: school1, Weekday: "Monday", StartTime: "08:00", EndTime: "09:00", SortOrder: 1}
	env.store.entries["e2"] = model.ScheduleEntry{ScheduleEntryID: "e2", ProviderID: provA, SchoolID: school1, Weekday: "Monday", StartTime: "09:00", EndTime: "10:00", SortOrder: 1}

	rows, err := env.entries.Move(context.Background(), "e2", DirectionUp, scheduler)
	if err != nil {
		t.Fatalf("上移失败: %v", err)
	}
	if got := entryIDs(rows); !sameIDs(got, []string{"e2", "e1"}) {
		t.Errorf("排序值相同时上移应生效，实际 %v", got)
	}
	if env.store.entries["e1"].SortOrder != 2 || env.store.entries["e2"].SortOrder != 1 {
		t.Errorf("应把后移的行 +1，实际 e1=%d e2=%d", env.store.entries["e1"].SortOrder, env.store.entries["e2"].SortOrder)
	}
}

func TestEntryList_ReadOnlyRole(t *testing.T) {
	env := setupTestEnv(t)
	key := scope(provA, school1, "Monday")
	env.seedCapacity(key, 3, 3, "", "")
	mustCreateEntry(t, env, key, "13:00:00", "14:00:00")

	rows, err := env.entries.List(context.Background(), key, staff)
	if err != nil {
		t.Fatalf("只读角色应可查看: %v", err)
	}
	if len(rows) != 1 || rows[0].StartTime != "13:00" {
		t.Errorf("时间应规范为 HH:MM，实际 %+v", rows)
	}

	env.access.denySchools[school1] = true
	if _, err := env.entries.List(context.Background(), key, staff); !errors.Is(err, ErrForbidden) {
		t.Errorf("无权限期望 ErrForbidden，实际 %v", err)
	}
}

// [自证通过] internal/service/schedule_entry_service_test.go
