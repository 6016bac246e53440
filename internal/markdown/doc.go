// Package markdown turns a fetched vault tree into seed documents and assets.
// It walks the tree, splits frontmatter from bodies, and uses goldmark to find
// local files referenced from note bodies.
package markdown
