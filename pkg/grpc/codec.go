package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName 註冊在 gRPC encoding registry 的 content-subtype
// Client 以 grpc.CallContentSubtype(JSONCodecName) 選用，Server 依請求自動選用
const JSONCodecName = "json"

// jsonCodec 讓 gRPC 以 JSON 傳輸一般 Go struct，訊息不需要 protoc 產生的型別
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
