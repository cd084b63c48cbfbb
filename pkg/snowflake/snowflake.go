// Package snowflake generates unique, time-ordered 64-bit IDs. Order
// numbers are derived from these IDs so they sort by creation time and
// never collide across API nodes.
package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// epoch is 2024-01-01T00:00:00Z in milliseconds. IDs store the
	// offset from this point, which keeps the timestamp field small.
	epoch int64 = 1704067200000

	nodeBits uint8 = 10
	seqBits  uint8 = 12

	// MaxNode is the largest node ID a Generator accepts.
	MaxNode int64 = -1 ^ (-1 << nodeBits)

	seqMask   int64 = -1 ^ (-1 << seqBits)
	timeShift       = nodeBits + seqBits
	nodeShift       = seqBits
)

// Generator produces IDs for a single node. Safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	lastMillis int64
	node       int64
	seq        int64
}

// New returns a Generator for the given node ID. Every API instance
// must run with a distinct node ID or IDs can collide.
func New(node int64) (*Generator, error) {
	if node < 0 || node > MaxNode {
		return nil, errors.New("snowflake: node ID out of range")
	}
	return &Generator{node: node}, nil
}

// NextID returns the next unique ID. IDs generated by the same node
// are strictly increasing.
func (g *Generator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now == g.lastMillis {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			// sequence exhausted for this millisecond
			for now <= g.lastMillis {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.seq = 0
	}
	g.lastMillis = now

	return ((now - epoch) << timeShift) | (g.node << nodeShift) | g.seq
}

// NextOrderNo returns a prefixed, human-readable order number.
// Uniqueness is additionally enforced by the unique index on the
// orders table; a collision there surfaces as a retryable conflict.
func (g *Generator) NextOrderNo(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, g.NextID())
}

// Parts is the decomposed form of an ID.
type Parts struct {
	Time time.Time
	Node int64
	Seq  int64
}

// Decompose splits an ID back into its timestamp, node and sequence.
func Decompose(id int64) Parts {
	return Parts{
		Time: time.UnixMilli((id >> timeShift) + epoch),
		Node: (id >> nodeShift) & MaxNode,
		Seq:  id & seqMask,
	}
}
