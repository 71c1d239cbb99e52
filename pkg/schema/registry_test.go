package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphjson/pkg/errors"
)

func loadSocial(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadFiles("testdata/social.yaml")
	require.NoError(t, err)
	return reg
}

func featureNames(fs []*Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func TestRegistryTypeLookup(t *testing.T) {
	reg := loadSocial(t)

	user := reg.Type("User")
	require.NotNil(t, user)
	assert.Same(t, user, reg.Type("social.User"))
	assert.Same(t, user, reg.Type("http://example.org/social#//User"))
	assert.Equal(t, "http://example.org/social#//User", user.URI())
	assert.Nil(t, reg.Type("Nobody"))
}

func TestRegistryFeatureOrder(t *testing.T) {
	reg := loadSocial(t)

	admin := reg.Type("Admin")
	got := featureNames(reg.Features(admin))
	want := []string{"name", "age", "friends", "bestFriend", "address", "tags", "favorite", "secret", "nickname", "level"}
	assert.Equal(t, want, got)
	assert.Equal(t, "kind", admin.TypeField)
	assert.Len(t, admin.AllOperations(), 1)
}

func TestRegistrySubtypes(t *testing.T) {
	reg := loadSocial(t)

	named := reg.Type("Named")
	subs := reg.Subtypes(named)
	var names []string
	for _, s := range subs {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"User", "Admin", "Post"}, names)
	assert.True(t, reg.Type("Admin").IsSubtypeOf(named))
	assert.False(t, named.IsSubtypeOf(reg.Type("User")))
	assert.Empty(t, reg.Subtypes(reg.Type("Address")))
}

func TestRegistryLinksFeatures(t *testing.T) {
	reg := loadSocial(t)
	user := reg.Type("User")

	friends := user.Feature("friends")
	require.NotNil(t, friends)
	assert.Same(t, user, friends.Target())
	assert.True(t, friends.IsReference())
	assert.True(t, friends.Many)

	tags := user.Feature("tags")
	assert.Equal(t, KindString, tags.KeyDataType().Kind)
	assert.Equal(t, KindString, tags.DataType().Kind)
	assert.Equal(t, Attribute, tags.ValueKindOf())

	favorite := user.Feature("favorite")
	assert.Equal(t, KindEnum, favorite.DataType().Kind)
	assert.True(t, favorite.DataType().HasLiteral("green"))

	nick := user.Feature("nickname")
	assert.Equal(t, "nick", nick.Field())
	assert.False(t, user.Feature("secret").Serialized())
}

func TestRegistryMixedMembers(t *testing.T) {
	reg := loadSocial(t)
	post := reg.Type("Post")

	body := post.Feature("body")
	require.Len(t, body.MemberFeatures(), 3)
	assert.Same(t, body, post.Feature("text").Group())
	assert.Same(t, post.Feature("image"), body.Member("image"))
	assert.False(t, post.Feature("text").Serialized())
	assert.True(t, body.Many)
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		pkg  *Package
	}{
		{
			name: "unknown supertype",
			pkg:  &Package{Name: "p", Types: []*Type{{Name: "A", Supertypes: []string{"Missing"}}}},
		},
		{
			name: "inheritance cycle",
			pkg: &Package{Name: "p", Types: []*Type{
				{Name: "A", Supertypes: []string{"B"}},
				{Name: "B", Supertypes: []string{"A"}},
			}},
		},
		{
			name: "unknown reference target",
			pkg: &Package{Name: "p", Types: []*Type{
				{Name: "A", Features: []*Feature{{Name: "x", Kind: Reference, Type: "Missing"}}},
			}},
		},
		{
			name: "unknown mixed member",
			pkg: &Package{Name: "p", Types: []*Type{
				{Name: "A", Features: []*Feature{{Name: "body", Kind: Mixed, Members: []string{"nope"}}}},
			}},
		},
		{
			name: "duplicate type",
			pkg:  &Package{Name: "p", Types: []*Type{{Name: "A"}, {Name: "A"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Register(tt.pkg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidSchema), "got %v", err)
			assert.Empty(t, reg.Types())
		})
	}
}

func TestParseYAMLRejectsUnknownKind(t *testing.T) {
	_, err := ParseYAML([]byte(`
package: p
types:
  - name: A
    features:
      - {name: x, kind: pointer}
`))
	require.Error(t, err)
}

func TestParseYAMLUnknownDataTypeFallsBackToString(t *testing.T) {
	p, err := ParseYAML([]byte(`
package: p
types:
  - name: A
    features:
      - {name: x, type: Whatever}
`))
	require.NoError(t, err)
	reg := MustRegistry(p)
	assert.Same(t, String, reg.Type("A").Feature("x").DataType())
}
