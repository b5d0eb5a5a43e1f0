package services

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out short identifiers from a snowflake node rendered
// in Base58, which contains no URL-reserved characters.
type IDGenerator struct {
	node *snowflake.Node
}

func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

func (g *IDGenerator) Next() string {
	return g.node.Generate().Base58()
}
