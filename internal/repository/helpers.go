package repository

// normalizePage clamps pagination inputs: pages start at 1 and page
// sizes stay within [1,100] with a default of 20.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
