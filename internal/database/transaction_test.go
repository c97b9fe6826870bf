package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxBuilder_Empty(t *testing.T) {
	tb := NewTxBuilder()

	query, vars := tb.Build()
	assert.Empty(t, query)
	assert.Nil(t, vars)
	assert.Equal(t, 0, tb.Len())
}

func TestTxBuilder_WrapsInTransaction(t *testing.T) {
	tb := NewTxBuilder()
	tb.Add(`UPSERT guild SET guild_id = $guild_id`, map[string]interface{}{"guild_id": int64(42)})
	tb.Add(`DELETE membership WHERE guild_id = $guild_id`, map[string]interface{}{"guild_id": int64(42)})

	query, vars := tb.Build()
	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Equal(t, 2, tb.Len())

	// Each statement gets its own namespaced copy of the variable
	assert.Len(t, vars, 2)
	assert.NotContains(t, query, "$guild_id ")
}

func TestTxBuilder_NamespacesCollidingVariables(t *testing.T) {
	tb := NewTxBuilder()
	tb.Add(`UPSERT a SET x = $x`, map[string]interface{}{"x": 1})
	tb.Add(`UPSERT b SET x = $x`, map[string]interface{}{"x": 2})

	query, vars := tb.Build()

	values := make(map[interface{}]bool)
	for name, value := range vars {
		assert.Contains(t, query, "$"+name)
		values[value] = true
	}
	assert.True(t, values[1])
	assert.True(t, values[2])
}

func TestTxBuilder_PrefixVariableNamesSurvive(t *testing.T) {
	// $player must not clobber the $player_id placeholder it prefixes
	tb := NewTxBuilder()
	tb.Add(`UPSERT m SET player_id = $player_id, player = $player`, map[string]interface{}{
		"player_id": int64(7),
		"player":    "alice",
	})

	query, vars := tb.Build()

	var idName, nameName string
	for name, value := range vars {
		switch value {
		case int64(7):
			idName = name
		case "alice":
			nameName = name
		}
	}
	require.NotEmpty(t, idName)
	require.NotEmpty(t, nameName)
	assert.Contains(t, query, "player_id = $"+idName)
	assert.Contains(t, query, "player = $"+nameName)
}
