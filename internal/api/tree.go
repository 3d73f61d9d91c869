package api

import (
	"context"
	"log/slog"
	"path"
	"strings"
)

type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// FileNode is one entry of the server's file tree.
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     NodeType   `json:"type"`
	Children []FileNode `json:"children,omitempty"`
	Size     int64      `json:"size,omitempty"`
	Modified string     `json:"modified,omitempty"`

	// Expanded is client-side display state.
	Expanded bool `json:"-"`
}

func (n FileNode) IsDir() bool { return n.Type == NodeDirectory }

// ExplorerTree loads the tree under dir and normalizes it so the explorer
// always has a single expanded root directory named after dir:
// an empty or failed response becomes that root alone, a tree without it
// at the top level is wrapped in it, and an existing one is expanded.
// Errors are logged, never returned.
func (c *Client) ExplorerTree(ctx context.Context, dir string, logger *slog.Logger) []FileNode {
	if dir == "" {
		dir = "output"
	}
	nodes, err := c.FileTree(ctx, dir)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("file tree unavailable", "dir", dir, "err", err)
		nodes = nil
	}
	return SeedRoot(nodes, dir)
}

// SeedRoot applies the explorer root rules to an already-fetched tree.
func SeedRoot(nodes []FileNode, dir string) []FileNode {
	name := path.Base(strings.TrimSuffix(dir, "/"))
	if name == "." || name == "/" || name == "" {
		name = "output"
	}
	root := FileNode{Name: name, Path: dir, Type: NodeDirectory, Expanded: true}

	if len(nodes) == 0 {
		root.Children = []FileNode{}
		return []FileNode{root}
	}
	for i := range nodes {
		if nodes[i].Name == name && nodes[i].IsDir() {
			nodes[i].Expanded = true
			return nodes
		}
	}
	root.Children = nodes
	return []FileNode{root}
}

// Walk visits every node depth-first with its depth. Returning false from
// fn skips the node's children.
func Walk(nodes []FileNode, fn func(n FileNode, depth int) bool) {
	var walk func([]FileNode, int)
	walk = func(ns []FileNode, depth int) {
		for _, n := range ns {
			if fn(n, depth) && len(n.Children) > 0 {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}
