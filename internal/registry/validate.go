package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/clustergrid/internal/ctxlog"
)

// ValidateRegistry checks that every platform input struct can be decoded
// from both description formats: each exported field carries matching hcl
// and yaml names and has a type cty can represent.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		reg := r.platforms[name]
		if reg.New == nil {
			errs = append(errs, fmt.Sprintf("platform '%s': no factory registered", name))
			continue
		}
		if reg.NewInput == nil {
			continue
		}

		input := reg.NewInput()
		v := reflect.ValueOf(input)
		if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("platform '%s': NewInput must return a pointer to a struct, got %T", name, input))
			continue
		}

		t := v.Elem().Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			hclName := tagName(field.Tag.Get("hcl"))
			yamlName := tagName(field.Tag.Get("yaml"))
			if hclName == "" || yamlName == "" {
				errs = append(errs, fmt.Sprintf("platform '%s': field '%s' needs both hcl and yaml tags", name, field.Name))
				continue
			}
			if hclName != yamlName {
				errs = append(errs, fmt.Sprintf("platform '%s': field '%s' is '%s' in HCL but '%s' in YAML", name, field.Name, hclName, yamlName))
			}
			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("platform '%s': field '%s' has unsupported type %s: %v", name, field.Name, field.Type, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "platforms", r.Names())
	return nil
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
