package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableSetLongestKeyWins(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("@Page", "X")
	vars.Set("@Page_Name", "Y")

	assert.Equal(t, "Y X @Unknown", vars.Apply("@Page_Name @Page @Unknown"))
}

func TestVariableSetSinglePass(t *testing.T) {
	vars := NewVariableSet()
	vars.Set("@a", "@b")
	vars.Set("@b", "B")
	assert.Equal(t, "@b B", vars.Apply("@a @b"), "values must not be substituted again")
}

func TestVariableSetSorted(t *testing.T) {
	vars := NewVariableSet()
	for _, k := range []string{"@ab", "@a", "@cd", "@abcd"} {
		vars.Set(k, "")
	}
	assert.Equal(t, []string{"@abcd", "@ab", "@cd", "@a"}, vars.Sorted())
}

func TestVariableSetMerge(t *testing.T) {
	base := NewVariableSet()
	base.Set("@url", "a")
	base.Set("@title", "T")

	other := NewVariableSet()
	other.Set("@url", "b")
	other.Set("@extra", "E")

	base.Merge(other)
	v, _ := base.Get("@url")
	assert.Equal(t, "b", v)
	assert.Equal(t, []string{"@url", "@title", "@extra"}, base.Keys())

	base.SetDefault("@title", "ignored")
	v, _ = base.Get("@title")
	assert.Equal(t, "T", v)
}

func TestVariableSetZeroValue(t *testing.T) {
	var vars VariableSet
	assert.Equal(t, "@x", vars.Apply("@x"))
	vars.Set("@x", "1")
	assert.Equal(t, "1", vars.Apply("@x"))
}
