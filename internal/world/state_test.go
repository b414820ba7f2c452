package world

import (
	"testing"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/core/command"
	"github.com/stretchr/testify/assert"
)

func TestNextPlayerWraps(t *testing.T) {
	s := NewState(LocalAuthoritative)
	s.AddPlayer(PlayerInfo{ID: 1, Civ: "rome"})
	s.AddPlayer(PlayerInfo{ID: 2, Civ: "egypt"})

	assert.Equal(t, component.PlayerID(1), s.CurrentPlayer)
	next, wrapped := s.NextPlayer()
	assert.Equal(t, component.PlayerID(2), next)
	assert.False(t, wrapped)

	s.CurrentPlayer = 2
	next, wrapped = s.NextPlayer()
	assert.Equal(t, component.PlayerID(1), next)
	assert.True(t, wrapped)
	assert.Equal(t, component.CivID("egypt"), s.CivOf(2))
}

func TestAuthorityGating(t *testing.T) {
	local := NewState(LocalAuthoritative)
	remote := NewState(RemoteAuthoritative)

	for _, d := range []Domain{DomainTurn, DomainProduction, DomainGrowth, DomainMovement} {
		assert.True(t, local.Applies(d, command.OriginLocal))
		assert.False(t, remote.Applies(d, command.OriginLocal))
		assert.False(t, remote.Applies(d, command.OriginSystem))
		assert.True(t, remote.Applies(d, command.OriginRemote))
	}
	assert.True(t, remote.Applies(DomainVisibility, command.OriginSystem))

	a, ok := ParseAuthority("remote")
	assert.True(t, ok)
	assert.Equal(t, RemoteAuthoritative, a)
	_, ok = ParseAuthority("both")
	assert.False(t, ok)
}
