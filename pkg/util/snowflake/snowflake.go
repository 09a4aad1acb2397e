package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	nodeID   int64 = 1
)

// Init 初始化雪花算法节点
// 应在程序启动时调用一次；machineID 超出范围时退回默认节点
func Init(machineID int64) {
	nodeID = machineID
	nodeOnce.Do(func() {
		if nodeID < 0 || nodeID > 1023 {
			nodeID = 1
			zap.L().Warn("Invalid MachineID in config, using default value 1")
		}
		var err error
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			zap.L().Fatal("Failed to initialize snowflake node", zap.Error(err))
		}
	})
}

// GenerateID 生成雪花 ID (int64)
// 同一节点内生成的 ID 随时间严格递增，消息按分配顺序定序依赖此性质
func GenerateID() int64 {
	if node == nil {
		Init(nodeID)
	}
	return node.Generate().Int64()
}
