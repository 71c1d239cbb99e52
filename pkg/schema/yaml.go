package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/graphjson/pkg/errors"
)

type yamlPackage struct {
	Package   string         `yaml:"package"`
	URI       string         `yaml:"uri"`
	DataTypes []yamlDataType `yaml:"datatypes"`
	Types     []yamlType     `yaml:"types"`
}

type yamlDataType struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Literals []string `yaml:"literals"`
	Layout   string   `yaml:"layout"`
}

type yamlType struct {
	Name       string          `yaml:"name"`
	Abstract   bool            `yaml:"abstract"`
	Supertypes []string        `yaml:"supertypes"`
	TypeField  string          `yaml:"typeField"`
	Features   []yamlFeature   `yaml:"features"`
	Operations []yamlOperation `yaml:"operations"`
}

type yamlFeature struct {
	Name      string   `yaml:"name"`
	JSON      string   `yaml:"json"`
	Aliases   []string `yaml:"aliases"`
	Kind      string   `yaml:"kind"`
	Type      string   `yaml:"type"`
	Many      bool     `yaml:"many"`
	Key       string   `yaml:"key"`
	Value     string   `yaml:"value"`
	Members   []string `yaml:"members"`
	Ignore    bool     `yaml:"ignore"`
	Transient bool     `yaml:"transient"`
	Raw       bool     `yaml:"raw"`
	Lazy      bool     `yaml:"lazy"`
	Default   any      `yaml:"default"`
}

type yamlOperation struct {
	Name   string   `yaml:"name"`
	JSON   string   `yaml:"json"`
	Expr   string   `yaml:"expr"`
	Params []string `yaml:"params"`
	Expose bool     `yaml:"expose"`
}

// ParseYAML decodes one package definition.
//
//	package: social
//	uri: http://example.org/social
//	types:
//	  - name: User
//	    features:
//	      - {name: name, type: string}
//	      - {name: friends, kind: reference, type: User, many: true}
func ParseYAML(data []byte) (*Package, error) {
	return ReadYAML(bytes.NewReader(data))
}

// ReadYAML decodes one package definition from r.
func ReadYAML(r io.Reader) (*Package, error) {
	var yp yamlPackage
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode schema")
	}
	return yp.build()
}

// LoadFile reads a package definition from a YAML file.
func LoadFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	p, err := ReadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadFiles builds a registry from YAML package files.
func LoadFiles(paths ...string) (*Registry, error) {
	pkgs := make([]*Package, 0, len(paths))
	for _, path := range paths {
		p, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	r := NewRegistry()
	if err := r.Register(pkgs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (yp yamlPackage) build() (*Package, error) {
	p := &Package{Name: yp.Package, URI: yp.URI}

	for _, yd := range yp.DataTypes {
		kind := KindString
		if yd.Kind != "" {
			k, err := ParseDataKind(yd.Kind)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "data type %s", yd.Name)
			}
			kind = k
		}
		if len(yd.Literals) > 0 && yd.Kind == "" {
			kind = KindEnum
		}
		p.DataTypes = append(p.DataTypes, &DataType{
			Name:     yd.Name,
			Kind:     kind,
			Literals: yd.Literals,
			Layout:   yd.Layout,
		})
	}

	for _, yt := range yp.Types {
		t := &Type{
			Name:       yt.Name,
			Abstract:   yt.Abstract,
			Supertypes: yt.Supertypes,
			TypeField:  yt.TypeField,
		}
		for _, yf := range yt.Features {
			f, err := yf.build()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s", yt.Name)
			}
			t.Features = append(t.Features, f)
		}
		for _, yo := range yt.Operations {
			t.Operations = append(t.Operations, &Operation{
				Name:       yo.Name,
				JSONName:   yo.JSON,
				Expression: yo.Expr,
				Params:     yo.Params,
				Expose:     yo.Expose,
			})
		}
		p.Types = append(p.Types, t)
	}
	return p, nil
}

func (yf yamlFeature) build() (*Feature, error) {
	kind, err := ParseKind(yf.Kind)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", yf.Name, err)
	}
	f := &Feature{
		Name:      yf.Name,
		JSONName:  yf.JSON,
		Aliases:   yf.Aliases,
		Kind:      kind,
		Type:      yf.Type,
		Many:      yf.Many,
		KeyType:   yf.Key,
		Members:   yf.Members,
		Ignore:    yf.Ignore,
		Transient: yf.Transient,
		Raw:       yf.Raw,
		Lazy:      yf.Lazy,
		Default:   yf.Default,
	}
	if kind == Map {
		vk, err := ParseKind(yf.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", yf.Name, err)
		}
		f.ValueKind = vk
	}
	return f, nil
}
