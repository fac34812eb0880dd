// clone.go - 函数深拷贝

package ir

// Clone 返回函数的深拷贝：参数、块和指令都是新对象，常量共享
func (f *Func) Clone() *Func {
	nf, _ := f.CloneWithOrigins()
	return nf
}

// CloneWithOrigins 同 Clone，并返回新指令到原指令的映射
func (f *Func) CloneWithOrigins() (*Func, map[*Instr]*Instr) {
	nf := NewFunc(f.Name, f.RetType)
	vmap := make(map[Value]Value, f.NumInstrs()+len(f.Params))
	bmap := make(map[*Block]*Block, len(f.Blocks))

	for _, p := range f.Params {
		vmap[p] = nf.AddParam(p.typ, p.name)
	}
	for _, b := range f.Blocks {
		bmap[b] = nf.NewBlock(b.name)
	}

	// 第一遍：创建指令，保证前向引用（phi 回边）能找到目标
	pairs := make([][2]*Instr, 0, f.NumInstrs())
	origins := make(map[*Instr]*Instr, f.NumInstrs())
	for _, b := range f.Blocks {
		nb := bmap[b]
		for _, inst := range b.Instrs {
			ni := &Instr{op: inst.op, typ: inst.typ, pred: inst.pred, align: inst.align}
			nb.insert(len(nb.Instrs), ni)
			ni.name = nf.uniqueName(inst.name)
			vmap[inst] = ni
			pairs = append(pairs, [2]*Instr{inst, ni})
			origins[ni] = inst
		}
	}

	// 第二遍：连接操作数
	for _, p := range pairs {
		old, ni := p[0], p[1]
		for _, op := range old.operands {
			if mapped, ok := vmap[op]; ok {
				ni.appendOperand(mapped)
			} else {
				ni.appendOperand(op)
			}
		}
		for _, b := range old.blocks {
			ni.blocks = append(ni.blocks, bmap[b])
		}
	}
	return nf, origins
}

// Clone 返回模块的深拷贝
func (m *Module) Clone() *Module {
	nm := NewModule(m.Name)
	for _, fn := range m.Funcs {
		nm.AddFunc(fn.Clone())
	}
	return nm
}
