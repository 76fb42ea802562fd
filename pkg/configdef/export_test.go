package configdef

func SameDir(a, b string) bool {
	return sameDir(a, b)
}
