package gen

import (
	"hash/fnv"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

// NewNode derives the node id from SNOWFLAKE_NODE, or from the hostname so
// replicas behind a load balancer do not collide.
func NewNode() (*snowflake.Node, error) {
	nodeID := nodeIDFromEnv()
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("snowflake node ready", zap.Int64("node_id", nodeID))
	return node, nil
}

func nodeIDFromEnv() int64 {
	if v, ok := os.LookupEnv("SNOWFLAKE_NODE"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id >= 0 && id < 1024 {
			return id
		}
	}

	host, err := os.Hostname()
	if err != nil {
		return 1
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int64(h.Sum32() % 1024)
}
