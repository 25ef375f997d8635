package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid())
}

func TestUser_HasFavorite(t *testing.T) {
	u := &User{FavoriteMovies: []string{"m-1", "m-2"}}
	assert.True(t, u.HasFavorite("m-2"))
	assert.False(t, u.HasFavorite("m-3"))
	assert.False(t, (&User{}).HasFavorite("m-1"))
}

func TestMovie_HasActor(t *testing.T) {
	m := &Movie{Actors: []string{"a-1"}}
	assert.True(t, m.HasActor("a-1"))
	assert.False(t, m.HasActor("a-2"))
}
