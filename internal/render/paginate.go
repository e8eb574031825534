package render

// paginate 把两列的块序列切成页。分页只取决于块高度与可排版高度：
// 贪心装箱，块不跨页；比整页还高的块独占一页并允许溢出（接受的退化行为）。
// 两列各自独立分页，页数取较长一列。
func paginate(left, right []blockView, printableH int) []page {
	if printableH <= 0 {
		printableH = pageHeightPx
	}

	leftPages := fillColumn(left, printableH)
	rightPages := fillColumn(right, printableH)

	n := len(leftPages)
	if len(rightPages) > n {
		n = len(rightPages)
	}
	if n == 0 {
		n = 1 // 空简历仍然渲染一张空页
	}

	pages := make([]page, 0, n)
	for i := 0; i < n; i++ {
		p := page{Index: i}
		if i < len(leftPages) {
			p.Left = leftPages[i]
		}
		if i < len(rightPages) {
			p.Right = rightPages[i]
		}
		pages = append(pages, p)
	}
	return pages
}

func fillColumn(blocks []blockView, printableH int) [][]blockView {
	var pages [][]blockView
	var current []blockView
	used := 0

	for _, b := range blocks {
		if used+b.Height > printableH && len(current) > 0 {
			pages = append(pages, current)
			current = nil
			used = 0
		}
		current = append(current, b)
		used += b.Height
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}
