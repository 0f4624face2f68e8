package object

import (
	"golang.org/x/mod/semver"
)

// DefaultLanguageVersion is the language version assemblies use unless
// configured otherwise.
const DefaultLanguageVersion = "v0.3.0"

// MetaKey is a function name the runtime calls implicitly.
type MetaKey struct {
	Name   string
	Return TypeRef
	// AnnotationOnly keys are only looked up on annotation classes.
	AnnotationOnly bool
	// Since is the first language version recognizing the key.
	Since string
}

var (
	MetaNew      = MetaKey{Name: "__new", Return: AnyType, Since: "v0.1.0"}
	MetaToString = MetaKey{Name: "__to_string", Return: NonNull(TypeString), Since: "v0.1.0"}
	MetaEq       = MetaKey{Name: "__eq", Return: NonNull(TypeBool), Since: "v0.1.0"}
	MetaAdd      = MetaKey{Name: "__add", Return: AnyType, Since: "v0.1.0"}
	MetaSub      = MetaKey{Name: "__sub", Return: AnyType, Since: "v0.1.0"}
	MetaMul      = MetaKey{Name: "__mul", Return: AnyType, Since: "v0.1.0"}
	MetaDiv      = MetaKey{Name: "__div", Return: AnyType, Since: "v0.1.0"}
	MetaMod      = MetaKey{Name: "__mod", Return: AnyType, Since: "v0.1.0"}
	MetaExp      = MetaKey{Name: "__exp", Return: AnyType, Since: "v0.1.0"}
	MetaGetN     = MetaKey{Name: "__get_n", Return: NonNull(TypeNumber), Since: "v0.2.0"}
	MetaIterate  = MetaKey{Name: "__iterate", Return: NonNull(TypeFunction), Since: "v0.2.0"}
	MetaConcat   = MetaKey{Name: "__concat", Return: AnyType, Since: "v0.2.0"}

	MetaPreNew      = MetaKey{Name: "__a_pre_new", Return: Nullable(TypeTable), AnnotationOnly: true, Since: "v0.3.0"}
	MetaPostNew     = MetaKey{Name: "__a_post_new", Return: AnyType, AnnotationOnly: true, Since: "v0.3.0"}
	MetaGetVariable = MetaKey{Name: "__a_get_variable", Return: Nullable(TypeTable), AnnotationOnly: true, Since: "v0.3.0"}
	MetaSetVariable = MetaKey{Name: "__a_set_variable", Return: Nullable(TypeTable), AnnotationOnly: true, Since: "v0.3.0"}
)

var allMetaKeys = []MetaKey{
	MetaNew, MetaToString, MetaEq,
	MetaAdd, MetaSub, MetaMul, MetaDiv, MetaMod, MetaExp,
	MetaGetN, MetaIterate, MetaConcat,
	MetaPreNew, MetaPostNew, MetaGetVariable, MetaSetVariable,
}

// MetaKeys returns the keys recognized by a language version. An invalid
// version selects DefaultLanguageVersion.
func MetaKeys(version string) []MetaKey {
	if !semver.IsValid(version) {
		version = DefaultLanguageVersion
	}
	var keys []MetaKey
	for _, k := range allMetaKeys {
		if semver.Compare(k.Since, version) <= 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsMetaName reports whether name is reserved for a meta function in any version.
func IsMetaName(name string) bool {
	for _, k := range allMetaKeys {
		if k.Name == name {
			return true
		}
	}
	return false
}
