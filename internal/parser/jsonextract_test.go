package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, firstJSONObject(`前置说明 {"a": 1} 后置说明`))
	assert.Equal(t, `{"a": {"b": 2}}`, firstJSONObject(`{"a": {"b": 2}}`))
	assert.Equal(t, "", firstJSONObject("没有任何JSON"))
	assert.Equal(t, "", firstJSONObject(`{"未闭合": 1`))
}

func TestRepairJSONQuotes(t *testing.T) {
	// 字符串内部未转义的双引号被修复后可正常反序列化
	broken := `{"summary": "擅长撰写"创意"文案的运营专员"}`
	var out map[string]string
	require.Error(t, json.Unmarshal([]byte(broken), &out))

	fixed := repairJSONQuotes(broken)
	require.NoError(t, json.Unmarshal([]byte(fixed), &out))
	assert.Equal(t, `擅长撰写"创意"文案的运营专员`, out["summary"])
}

func TestRepairJSONQuotes_PreservesValidJSON(t *testing.T) {
	valid := `{"a": "已转义的\"引号\"", "b": ["x", "y"]}`
	assert.Equal(t, valid, repairJSONQuotes(valid))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "短文本", truncateRunes("短文本", 10))
	assert.Equal(t, "一二三", truncateRunes("一二三四五", 3))
}
