//go:build sonic

package fileindex

import "github.com/bytedance/sonic"

var (
	jsonMarshal       = sonic.Marshal
	jsonMarshalIndent = sonic.ConfigStd.MarshalIndent
	jsonUnmarshal     = sonic.Unmarshal
)
