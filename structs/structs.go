package structs

// Position 描述游戏地图上的一个坐标位置。
type Position struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Result 描述一局结束时的结果。
type Result struct {
	Outcome         string `json:"outcome"`         // "won" 或 "lost"
	SecondsSurvived int    `json:"secondsSurvived"` // 存活秒数
}

// Frame 描述某一时刻可供渲染的完整状态。
type Frame struct {
	SessionID  string     `json:"session"`          // 会话标识
	State      string     `json:"state"`            // idle / running / won / lost
	Difficulty string     `json:"difficulty"`       // 难度名
	TileCount  int        `json:"tileCount"`        // 地图边长（格）
	Snake      []Position `json:"snake"`            // 蛇身，蛇头在前
	Food       Position   `json:"food"`             // 食物位置
	Score      int        `json:"score"`            // 开局以来的秒数
	Direction  string     `json:"direction"`        // 下一步的方向
	Tick       uint64     `json:"tick"`             // 本局已推进的步数
	Result     *Result    `json:"result,omitempty"` // 终局结果
}

// GameRecord 描述会话登记表中的一行。
type GameRecord struct {
	SessionID       string `json:"session"`
	Difficulty      string `json:"difficulty"`
	State           string `json:"state"`
	StartedAt       int64  `json:"startedAt"` // 时间戳
	EndedAt         int64  `json:"endedAt"`   // 时间戳，未结束为 0
	SecondsSurvived int    `json:"secondsSurvived"`
}
