package gemini

// objectScanner incrementally extracts complete top-level JSON objects from a
// stream of array fragments. The model emits a JSON array of question objects
// but chunk boundaries fall anywhere, so the scanner tracks brace depth and
// string state across Feed calls and emits each object as soon as its closing
// brace arrives.
type objectScanner struct {
	buf      []byte
	start    int
	depth    int
	inString bool
	escaped  bool
	scanned  int
}

// Feed appends a chunk and returns the raw bytes of every object completed by
// it, in stream order. Returned slices are copies and safe to retain.
func (s *objectScanner) Feed(chunk string) [][]byte {
	s.buf = append(s.buf, chunk...)

	var complete [][]byte
	for ; s.scanned < len(s.buf); s.scanned++ {
		c := s.buf[s.scanned]

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			continue
		}

		switch c {
		case '"':
			if s.depth > 0 {
				s.inString = true
			}
		case '{':
			if s.depth == 0 {
				s.start = s.scanned
			}
			s.depth++
		case '}':
			s.depth--
			if s.depth == 0 {
				obj := make([]byte, s.scanned-s.start+1)
				copy(obj, s.buf[s.start:s.scanned+1])
				complete = append(complete, obj)
			}
		}
	}

	return complete
}
