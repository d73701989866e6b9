package parse

// ParseJSONUnit returns no sections: per spec.md §4.6 and §3 invariant
// I5, json_unit files are stored as opaque frontmatter_raw bytes with
// zero Sections. The caller is responsible for putting the full file
// content into File.FrontmatterRaw; this function exists only so the
// format dispatch in the caller reads uniformly across all five
// parsers.
func ParseJSONUnit(content []byte) ([]byte, error) {
	return content, nil
}
