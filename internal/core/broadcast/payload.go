package broadcast

import (
	"encoding/json"

	"github.com/dep2p/go-ecosgate/config"
)

// State 模块状态
type State struct {
	Hex    string `json:"hex"`
	Binary string `json:"binary"`
}

// Event 单个模块的变化
type Event struct {
	ObjectID int   `json:"objectId"`
	Port     int   `json:"port"`
	State    State `json:"state"`
}

// Info 反馈总线布局（左、中、右三段的模块数）
type Info struct {
	Left   int `json:"left"`
	Middle int `json:"middle"`
	Right  int `json:"right"`
}

// Payload 推送给观察者的消息
type Payload struct {
	Event Event `json:"event"`
	Info  Info  `json:"info"`
}

// InfoFromConfig 由 HSI 配置生成布局信息
func InfoFromConfig(cfg config.HSIConfig) Info {
	return Info{Left: cfg.Left, Middle: cfg.Middle, Right: cfg.Right}
}

// Encode 编码一条载荷；port 为设备侧模块编号
func Encode(objectID, port int, hex, binary string, info Info) ([]byte, error) {
	return json.Marshal(Payload{
		Event: Event{
			ObjectID: objectID,
			Port:     port,
			State:    State{Hex: hex, Binary: binary},
		},
		Info: info,
	})
}
