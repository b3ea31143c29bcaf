package banks

import (
	"fmt"
	"strings"
)

// sgmlElement is a node of an OFX SGML document. Leaf elements carry text and
// their close tag is optional; aggregate elements carry children.
type sgmlElement struct {
	tag      string
	text     string
	children []*sgmlElement
}

// parseSGML parses the OFX body. Leaf tags are closed by the next tag when
// the export omits their end tag, aggregates by their matching end tag.
func parseSGML(s string) (*sgmlElement, error) {
	root := &sgmlElement{}
	stack := []*sgmlElement{root}

	pos := 0
	for {
		open := strings.IndexByte(s[pos:], '<')
		if open < 0 {
			break
		}
		open += pos
		close := strings.IndexByte(s[open:], '>')
		if close < 0 {
			return nil, fmt.Errorf("unterminated tag at offset %d", open)
		}
		close += open
		tag := strings.TrimSpace(s[open+1 : close])
		pos = close + 1

		if strings.HasPrefix(tag, "/") {
			tag = tag[1:]
			// Pop by name; anything above the match was closed implicitly.
			match := -1
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].tag == tag {
					match = i
					break
				}
			}
			if match < 0 {
				return nil, fmt.Errorf("close tag </%s> at offset %d has no opening tag", tag, open)
			}
			stack = stack[:match]
			continue
		}

		// Text up to the next tag decides whether this is a leaf.
		next := strings.IndexByte(s[pos:], '<')
		var text string
		if next < 0 {
			text = s[pos:]
		} else {
			text = s[pos : pos+next]
		}
		text = strings.TrimSpace(text)

		// The new tag implicitly closes any still-open leaves.
		for len(stack) > 1 && stack[len(stack)-1].text != "" {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1]
		el := &sgmlElement{tag: tag, text: text}
		parent.children = append(parent.children, el)
		stack = append(stack, el)
	}

	if len(root.children) == 1 {
		return root.children[0], nil
	}
	return root, nil
}

// get walks the first child matching each tag in turn.
func (e *sgmlElement) get(tags ...string) *sgmlElement {
	cur := e
	for _, tag := range tags {
		var found *sgmlElement
		for _, c := range cur.children {
			if c.tag == tag {
				found = c
				break
			}
		}
		if found == nil {
			return nil
		}
		cur = found
	}
	return cur
}

// getText resolves a nested path to its leaf text, or "".
func (e *sgmlElement) getText(tags ...string) string {
	if el := e.get(tags...); el != nil {
		return el.text
	}
	return ""
}
