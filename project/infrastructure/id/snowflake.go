package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init はノード番号を指定して Snowflake ノードを初期化します。2回目以降の呼び出しは何もしません
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New は時刻順に並ぶ一意な int64 のIDを生成します
func New() int64 {
	return node.Generate().Int64()
}
