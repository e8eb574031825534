package resume

// 编辑器动作对应的就地变更。每个入口都负责维护自己的不变量，
// 调用方不需要在变更后再跑一次 Sanitize。

// AddCustomSection 追加一个自定义区块，并为其分配 sections 槽位。
func (r *Resume) AddCustomSection(title string) string {
	cs := CustomSection{
		ID:    NewID(),
		Title: title,
		Items: []CustomItem{},
	}
	r.CustomSections = append(r.CustomSections, cs)
	r.Sections = append(r.Sections, SectionRef{
		Type:            SectionCustom,
		CustomSectionID: cs.ID,
		Column:          ColumnLeft,
		Visible:         true,
		Order:           len(r.Sections),
	})
	r.renumberSections()
	return cs.ID
}

// RemoveCustomSection 删除自定义区块：级联删除其全部条目并移除槽位。
// 返回是否真的删除了区块。
func (r *Resume) RemoveCustomSection(id string) bool {
	idx := -1
	for i, cs := range r.CustomSections {
		if cs.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	// Items 随父区块一起消失，不会留下可查询的孤儿。
	r.CustomSections = append(r.CustomSections[:idx], r.CustomSections[idx+1:]...)

	kept := r.Sections[:0]
	for _, ref := range r.Sections {
		if ref.Type == SectionCustom && ref.CustomSectionID == id {
			continue
		}
		kept = append(kept, ref)
	}
	r.Sections = kept
	r.renumberSections()
	return true
}

// AddCustomItem 向指定自定义区块追加条目，返回新条目 ID；区块不存在时返回空串。
func (r *Resume) AddCustomItem(sectionID string, item CustomItem) string {
	for i := range r.CustomSections {
		if r.CustomSections[i].ID != sectionID {
			continue
		}
		item.ID = NewID()
		r.CustomSections[i].Items = append(r.CustomSections[i].Items, item)
		return item.ID
	}
	return ""
}

// CustomItemByID 按 ID 查找条目，供级联删除的断言使用。
func (r *Resume) CustomItemByID(itemID string) (CustomItem, bool) {
	for _, cs := range r.CustomSections {
		for _, item := range cs.Items {
			if item.ID == itemID {
				return item, true
			}
		}
	}
	return CustomItem{}, false
}

// MoveSection 把一个槽位移动到目标序号（0 基），其余槽位顺延并重新编号。
func (r *Resume) MoveSection(from, to int) {
	if from < 0 || from >= len(r.Sections) {
		return
	}
	if to < 0 {
		to = 0
	}
	if to >= len(r.Sections) {
		to = len(r.Sections) - 1
	}
	if from == to {
		return
	}
	ref := r.Sections[from]
	rest := append(r.Sections[:from:from], r.Sections[from+1:]...)
	r.Sections = append(rest[:to:to], append([]SectionRef{ref}, rest[to:]...)...)
	r.renumberSections()
}

// SetSectionVisible 切换区块可见性。隐藏的区块不参与渲染，但槽位保留。
func (r *Resume) SetSectionVisible(t SectionType, customID string, visible bool) {
	for i := range r.Sections {
		if r.Sections[i].Type != t {
			continue
		}
		if t == SectionCustom && r.Sections[i].CustomSectionID != customID {
			continue
		}
		r.Sections[i].Visible = visible
		return
	}
}

// renumberSections 把 Order 重写为当前切片顺序 0..n-1，禁止并列。
func (r *Resume) renumberSections() {
	for i := range r.Sections {
		r.Sections[i].Order = i
	}
}
