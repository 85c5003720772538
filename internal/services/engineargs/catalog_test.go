package engineargs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs_EmptyExtraEqualsBase(t *testing.T) {
	for _, p := range Profiles() {
		assert.Equal(t, p.BaseFlags(), BuildArgs(p, nil), p.Name())
		assert.Equal(t, p.BaseFlags(), BuildArgs(p, []string{}), p.Name())
	}
}

func TestBuildArgs_ExtraAppendedInOrderWithoutDedup(t *testing.T) {
	extra := []string{"--enable-webgl", "--b", "--a", "--b"}
	for _, p := range Profiles() {
		got := BuildArgs(p, extra)
		base := p.BaseFlags()
		require.Len(t, got, len(base)+len(extra))
		assert.Equal(t, base, got[:len(base)])
		assert.Equal(t, extra, got[len(base):])
	}
}

func TestBuildArgs_DoesNotAliasBase(t *testing.T) {
	got := BuildArgs(Chromium, nil)
	got[0] = "--mutated"
	assert.NotEqual(t, "--mutated", Chromium.BaseFlags()[0])
}

func TestChromiumBaseOmitsWebSecurityDowngrade(t *testing.T) {
	for _, p := range Profiles() {
		assert.NotContains(t, p.BaseFlags(), DisableWebSecurityFlag, p.Name())
	}
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName(" Edge ")
	require.NoError(t, err)
	assert.Equal(t, "edge", p.Name())

	p, err = ProfileByName("chromium")
	require.NoError(t, err)
	assert.Equal(t, "Chrome Engine", p.Label())

	_, err = ProfileByName("gecko")
	require.Error(t, err)
}
