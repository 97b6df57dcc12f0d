// Package vm implements the Parlor virtual machine.
//
// This package contains:
//   - Tagged value representation with a total structural order
//   - Instruction set and immutable instruction blocks
//   - Module model with private/public namespaces and dispatch rules
//   - The interpreter loop and the call/return/goto protocol
//   - Prefix-trie module registry and the system-call table
//   - Rule dispatch for token-prefix pattern matching
package vm
