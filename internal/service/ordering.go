package service

// ── 有序列表移动 ──

// 移动方向
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// orderedItem 按列表顺序（含次级排序键）排列的行
type orderedItem struct {
	id    string
	order int
}

// orderChange 需要写回的排序值
type orderChange struct {
	id    string
	order int
}

// planMove 计算移动所需的排序值变更。
// 无相邻行返回 nil（边界不移动）；排序值相同则把移动后靠后的行 +1，否则交换两者的值。
func planMove(items []orderedItem, id, direction string) ([]orderChange, bool) {
	idx := -1
	for i := range items {
		if items[i].id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	nb := idx - 1
	if direction == DirectionDown {
		nb = idx + 1
	}
	if nb < 0 || nb >= len(items) {
		return nil, true
	}

	cur, other := items[idx], items[nb]
	if cur.order == other.order {
		// 排在后面的那一行 +1：上移推相邻行，下移推当前行。
		// +1 后可能与再下一行同值，此时先后由次级排序键决定，不级联推移
		later := other.id
		if direction == DirectionDown {
			later = cur.id
		}
		return []orderChange{{id: later, order: cur.order + 1}}, true
	}
	return []orderChange{
		{id: cur.id, order: other.order},
		{id: other.id, order: cur.order},
	}, true
}

// [自证通过] internal/service/ordering.go
