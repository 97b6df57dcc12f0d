package vm

import "strings"

// ---------------------------------------------------------------------------
// Blocks: immutable instruction arrays
// ---------------------------------------------------------------------------

// Block is an immutable, zero-indexed, fixed-length array of
// commands. A Block of length 0 is a legal no-op.
type Block struct {
	cmds []Command
}

// NewBlock builds a Block from commands. The command slice is copied
// so later mutation of the argument cannot reach the block.
func NewBlock(cmds ...Command) *Block {
	out := make([]Command, len(cmds))
	copy(out, cmds)
	return &Block{cmds: out}
}

// Len returns the number of commands.
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.cmds)
}

// At returns the command at index i. Panics when out of range, like a
// slice access; callers bound i by Len.
func (b *Block) At(i int) Command {
	return b.cmds[i]
}

// String renders the block one command per line, used for diagnostics
// and for the structural ordering of Func values.
func (b *Block) String() string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	for i, c := range b.cmds {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

// jumpTargets scans the block for SetJump commands and returns the
// label -> index table. Rebuilt whenever a block becomes current. A
// label marked twice keeps the last occurrence.
func (b *Block) jumpTargets() map[Label]int {
	table := map[Label]int{}
	if b == nil {
		return table
	}
	for i, c := range b.cmds {
		if sj, ok := c.(SetJump); ok {
			table[sj.Name] = i
		}
	}
	return table
}
