package key

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/edge-xcc/command/helper"
)

type KeyResult struct {
	Key       string `json:"key"`
	Length    int    `json:"length"`
	Namespace string `json:"namespace"`
	Valid     bool   `json:"valid"`
}

func (r *KeyResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[STORAGE KEY]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Key|%s", r.Key),
		fmt.Sprintf("Length|%d", r.Length),
		fmt.Sprintf("Namespace|%s", r.Namespace),
		fmt.Sprintf("Well formed|%t", r.Valid),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
