package framer

// 报文头 Flags 位定义。
const (
	FlagCompressed uint64 = 1 << 0
	FlagEncrypted  uint64 = 1 << 1
)

// Header 为报文头，随 Envelope 一起以 binser 格式编码。
type Header struct {
	Op        uint32 // 消息类型
	Seq       uint64 // 序号
	Flags     uint64 // 见 FlagCompressed / FlagEncrypted
	Timestamp int64  // 毫秒时间戳
	Size      uint32 // Payload 长度，由 WriteFrame 自动填写
}

// Envelope 为一帧承载的完整内容。
type Envelope struct {
	Header  Header
	Payload []byte
}
