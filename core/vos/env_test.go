package vos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEnv(t *testing.T) {
	env := NewMapEnv()

	_, ok := env.LookupEnv("HOME")
	assert.False(t, ok, "lookup on empty env")

	assert.Nil(t, env.Setenv("HOME", "/home/user"))
	assert.Equal(t, "/home/user", env.Getenv("HOME"))

	assert.Nil(t, env.Setenv("A", "1"))
	assert.Nil(t, env.Setenv("B", "2"))
	assert.Equal(t, []string{"A=1", "B=2", "HOME=/home/user"}, env.Environ())

	assert.Nil(t, env.Unsetenv("HOME"))
	_, ok = env.LookupEnv("HOME")
	assert.False(t, ok, "lookup after unset")
}

func TestNewMapEnvFromEnvList(t *testing.T) {
	env := NewMapEnvFromEnvList([]string{"A=1", "B=x=y", "EMPTY="})

	assert.Equal(t, "1", env.Getenv("A"))
	assert.Equal(t, "x=y", env.Getenv("B"), "values may contain =")

	val, ok := env.LookupEnv("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestCopyEnv(t *testing.T) {
	src := NewMapEnvFromEnvList([]string{"A=1", "B=2"})
	dst := NewMapEnv()

	assert.Nil(t, CopyEnv(dst, src))
	assert.Equal(t, src.Environ(), dst.Environ())

	// Mutating the copy must not affect the source.
	assert.Nil(t, dst.Setenv("A", "changed"))
	assert.Equal(t, "1", src.Getenv("A"))
}
