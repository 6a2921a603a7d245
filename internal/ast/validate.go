package ast

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a tree rooted at root:
// the root is a Document, structural kinds only appear under an Image,
// lists hold list items, tables hold heads and rows, and a list item
// nests at most one list.
func Validate(root *Node) error {
	if root == nil {
		return errors.New("ast: nil root")
	}
	if root.Kind != KindDocument {
		return fmt.Errorf("ast: root is %s, want %s", root.Kind, KindDocument)
	}
	return validateChildren(root, "Document")
}

func validateChildren(parent *Node, path string) error {
	nested := 0
	for i, c := range parent.Children {
		if c == nil {
			return fmt.Errorf("ast: %s[%d]: nil child", path, i)
		}
		where := fmt.Sprintf("%s[%d]/%s", path, i, c.Kind)
		if c.Kind < 0 || c.Kind >= kindCount {
			return fmt.Errorf("ast: %s: unknown kind", where)
		}
		if c.Kind == KindDocument {
			return fmt.Errorf("ast: %s: nested document", where)
		}
		if c.Kind.Structural() && parent.Kind != KindImage {
			return fmt.Errorf("ast: %s: structural node outside an image", where)
		}
		switch parent.Kind {
		case KindList:
			if c.Kind != KindListItem {
				return fmt.Errorf("ast: %s: list child must be a list item", where)
			}
		case KindTable:
			if c.Kind != KindTableHead && c.Kind != KindTableRow {
				return fmt.Errorf("ast: %s: table child must be a head or row", where)
			}
		case KindTableHead:
			if c.Kind != KindTableRow {
				return fmt.Errorf("ast: %s: table head child must be a row", where)
			}
		case KindTableRow:
			if c.Kind != KindTableCell {
				return fmt.Errorf("ast: %s: table row child must be a cell", where)
			}
		case KindListItem:
			if c.Kind == KindList {
				nested++
				if nested > 1 {
					return fmt.Errorf("ast: %s: list item nests more than one list", where)
				}
			}
		}
		if c.Kind == KindTextMark && c.Mark == nil {
			return fmt.Errorf("ast: %s: text mark without mark data", where)
		}
		if err := validateChildren(c, where); err != nil {
			return err
		}
	}
	return nil
}
