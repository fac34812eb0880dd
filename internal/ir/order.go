// order.go - 基本块遍历顺序

package ir

// ReversePostOrder 返回从入口可达的基本块的逆后序
//
// 逆后序保证：除回边外，一个块的所有前驱都排在它之前。
// 后继按终止指令中的顺序访问，结果是确定的。
func ReversePostOrder(fn *Func) []*Block {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}

	type frame struct {
		block *Block
		succs []*Block
		next  int
	}

	visited := map[*Block]bool{entry: true}
	post := make([]*Block, 0, len(fn.Blocks))
	stack := []*frame{{block: entry, succs: entry.Succs()}}

	// 迭代 DFS，避免深 CFG 栈溢出
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.succs) {
			s := top.succs[top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, &frame{block: s, succs: s.Succs()})
			}
			continue
		}
		post = append(post, top.block)
		stack = stack[:len(stack)-1]
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// PredMap 计算每个块的前驱列表
func PredMap(fn *Func) map[*Block][]*Block {
	preds := make(map[*Block][]*Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		seen := make(map[*Block]bool)
		for _, s := range b.Succs() {
			if seen[s] {
				continue
			}
			seen[s] = true
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// ============================================================================
// 支配树
// ============================================================================

// DomTree 可达块的直接支配关系
type DomTree struct {
	idom  map[*Block]*Block
	order map[*Block]int // 逆后序编号
}

// ComputeDominators 计算支配树
// 使用 Cooper 等人的简化迭代算法，不可达块不在树中
func ComputeDominators(fn *Func) *DomTree {
	t := &DomTree{
		idom:  make(map[*Block]*Block),
		order: make(map[*Block]int),
	}
	rpo := ReversePostOrder(fn)
	if len(rpo) == 0 {
		return t
	}
	for i, b := range rpo {
		t.order[b] = i
	}

	preds := PredMap(fn)
	entry := rpo[0]
	t.idom[entry] = entry

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var idom *Block
			for _, p := range preds[b] {
				if t.idom[p] == nil {
					continue
				}
				if idom == nil {
					idom = p
				} else {
					idom = t.intersect(p, idom)
				}
			}
			if idom != nil && t.idom[b] != idom {
				t.idom[b] = idom
				changed = true
			}
		}
	}
	return t
}

func (t *DomTree) intersect(a, b *Block) *Block {
	for a != b {
		for t.order[a] > t.order[b] {
			a = t.idom[a]
		}
		for t.order[b] > t.order[a] {
			b = t.idom[b]
		}
	}
	return a
}

// Reachable 报告块是否从入口可达
func (t *DomTree) Reachable(b *Block) bool {
	_, ok := t.order[b]
	return ok
}

// IDom 返回直接支配者，入口块和不可达块返回 nil
func (t *DomTree) IDom(b *Block) *Block {
	if d := t.idom[b]; d != b {
		return d
	}
	return nil
}

// Dominates 报告 a 是否支配 b，块支配自身
func (t *DomTree) Dominates(a, b *Block) bool {
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	for a != b {
		d := t.idom[b]
		if d == b {
			return false
		}
		b = d
	}
	return true
}
