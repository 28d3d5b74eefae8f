package player

// TransportCommand 下发给输出端的控制指令
type TransportCommand struct {
	Action  string  `json:"action"` // load / play / pause / seek / volume
	URL     string  `json:"url,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Volume  float64 `json:"volume,omitempty"`
}

// CommandSink 接收控制指令的下游，通常是 websocket 推送通道
type CommandSink interface {
	SendCommand(cmd TransportCommand)
}

// remoteTransport 把控制指令转发给远端输出设备
// 实际的音频输出在客户端，服务端持有权威状态，进度由客户端上报回写
type remoteTransport struct {
	sink CommandSink
}

// NewRemoteTransport 创建远端输出代理
func NewRemoteTransport(sink CommandSink) Transport {
	return &remoteTransport{sink: sink}
}

func (t *remoteTransport) Load(url string) error {
	t.sink.SendCommand(TransportCommand{Action: "load", URL: url})
	return nil
}

func (t *remoteTransport) Play() error {
	t.sink.SendCommand(TransportCommand{Action: "play"})
	return nil
}

func (t *remoteTransport) Pause() {
	t.sink.SendCommand(TransportCommand{Action: "pause"})
}

func (t *remoteTransport) Seek(seconds float64) {
	t.sink.SendCommand(TransportCommand{Action: "seek", Seconds: seconds})
}

func (t *remoteTransport) SetVolume(v float64) {
	t.sink.SendCommand(TransportCommand{Action: "volume", Volume: v})
}
