package cty

import "strings"

// ctyTrie implements a read-only prefix trie over registered prefix keys.
//
// It enables longest-prefix matching without scanning all known prefixes:
// walk the callsign bytes from the root; every time we land on a terminal
// node, remember that key as the best match so far. The last terminal
// observed is the longest prefix that matches the callsign.
//
// Nodes are stored in a slice so child links are small integer indices,
// keeping memory usage predictable and avoiding pointer-heavy trees.
type ctyTrie struct {
	nodes []ctyTrieNode
}

type ctyTrieNode struct {
	next        map[byte]int
	terminalKey string
}

func buildCTYTrie(keys []string) ctyTrie {
	tr := ctyTrie{nodes: []ctyTrieNode{{next: make(map[byte]int)}}}
	for _, key := range keys {
		if key == "" {
			continue
		}
		state := 0
		for i := 0; i < len(key); i++ {
			ch := key[i]
			next := tr.nodes[state].next
			if next == nil {
				next = make(map[byte]int)
				tr.nodes[state].next = next
			}
			child, ok := next[ch]
			if !ok {
				child = len(tr.nodes)
				tr.nodes = append(tr.nodes, ctyTrieNode{})
				next[ch] = child
			}
			state = child
		}
		tr.nodes[state].terminalKey = key
	}
	return tr
}

func (tr *ctyTrie) longestPrefixKey(cs string) (string, bool) {
	if tr == nil || len(tr.nodes) == 0 || cs == "" {
		return "", false
	}
	state := 0
	best := ""
	for i := 0; i < len(cs); i++ {
		next := tr.nodes[state].next
		if next == nil {
			break
		}
		child, ok := next[cs[i]]
		if !ok {
			break
		}
		state = child
		if tr.nodes[state].terminalKey != "" {
			best = tr.nodes[state].terminalKey
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// LookupCallsign resolves a callsign to its entity entry. Resolution order:
//
//  1. Exact-match table hit (registered with a leading '=' in the database).
//  2. Portable slash handling: split on the last '/'; a trailing segment of
//     three or fewer characters is a portable suffix and is discarded, while
//     a longer trailing segment means the leading part was the foreign
//     prefix, so the part after the slash is what gets matched. This length
//     heuristic misclassifies some real-world formats but matches longstanding
//     cluster behavior.
//  3. Longest registered prefix of the remaining string.
func (db *Database) LookupCallsign(call string) (Entry, bool) {
	if db == nil {
		return Entry{}, false
	}
	call = strings.ToUpper(strings.TrimSpace(call))
	if call == "" {
		return Entry{}, false
	}
	if entry, ok := db.exact[call]; ok {
		return entry, true
	}
	if idx := strings.LastIndexByte(call, '/'); idx > 0 && idx < len(call)-1 {
		tail := call[idx+1:]
		if len(tail) <= 3 {
			call = call[:idx]
		} else {
			call = tail
		}
	}
	key, ok := db.trie.longestPrefixKey(call)
	if !ok {
		return Entry{}, false
	}
	return db.prefixes[key], true
}
