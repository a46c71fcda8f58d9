package collectas

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ExtensionBuilder builds the container for an extension kind. It receives
// exactly the descriptor and the sequence; options such as the empty policy
// are not passed on. Implementations must be safe to call concurrently.
type ExtensionBuilder func(d Descriptor, seq Sequence) (any, error)

var (
	// ErrDuplicateKind indicates a second registration for the same tag type.
	ErrDuplicateKind = errors.New("collectas: duplicate kind registration")
	// ErrKindsSealed indicates a registration after SealKinds.
	ErrKindsSealed = errors.New("collectas: kind registry sealed")
	// ErrKindTag indicates a tag whose type the registering package does not own.
	ErrKindTag = errors.New("collectas: kind tag must be a named type declared by the registering package")
)

const modulePath = "github.com/reoring/collectas"

// kindRegistry holds extension builders keyed by the dynamic type of their
// tag. It is safe for concurrent use.
type kindRegistry struct {
	mu     sync.RWMutex
	data   map[reflect.Type]ExtensionBuilder
	sealed atomic.Bool
}

func newKindRegistry() *kindRegistry {
	return &kindRegistry{data: make(map[reflect.Type]ExtensionBuilder)}
}

var kinds = newKindRegistry()

// RegisterKind adds a container kind. The tag's type is the dispatch key and
// must be a named type declared in the calling package, so two independent
// extensions can never claim the same slot; types from this module, other
// packages and unnamed types are rejected with ErrKindTag.
//
//	type ringKind struct{}
//
//	func init() { collectas.MustRegisterKind(ringKind{}, buildRing) }
//
//	v, err := collectas.CollectAs(collectas.Extension(ringKind{}), src)
func RegisterKind(tag any, b ExtensionBuilder) error {
	return kinds.register(tag, b, callerPackage(2))
}

// MustRegisterKind is RegisterKind for init blocks; it panics on error.
func MustRegisterKind(tag any, b ExtensionBuilder) {
	if err := kinds.register(tag, b, callerPackage(2)); err != nil {
		panic(err)
	}
}

// LookupKind returns the builder registered for tag's type.
func LookupKind(tag any) (ExtensionBuilder, bool) { return kinds.lookup(tag) }

// Kinds returns the registered tag types sorted by name.
func Kinds() []reflect.Type { return kinds.keys() }

// SealKinds freezes the registry; later registrations fail with
// ErrKindsSealed.
func SealKinds() { kinds.sealed.Store(true) }

func (r *kindRegistry) register(tag any, b ExtensionBuilder, caller string) error {
	if r.sealed.Load() {
		return ErrKindsSealed
	}
	if b == nil {
		return fmt.Errorf("collectas: nil builder for %T", tag)
	}
	t := reflect.TypeOf(tag)
	if err := checkTag(t, caller); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[t]; exists {
		return fmt.Errorf("%w: %v", ErrDuplicateKind, t)
	}
	r.data[t] = b
	return nil
}

func checkTag(t reflect.Type, caller string) error {
	if t == nil || t.Name() == "" || t.PkgPath() == "" {
		return fmt.Errorf("%w: %v is not a named type", ErrKindTag, typeName(t))
	}
	pkg := t.PkgPath()
	if pkg == modulePath || strings.HasPrefix(pkg, modulePath+"/") {
		return fmt.Errorf("%w: %v belongs to collectas", ErrKindTag, t)
	}
	if caller != "" && pkg != caller {
		return fmt.Errorf("%w: %v is declared in %s, registered from %s", ErrKindTag, t, pkg, caller)
	}
	return nil
}

func (r *kindRegistry) lookup(tag any) (ExtensionBuilder, bool) {
	t := reflect.TypeOf(tag)
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	b, ok := r.data[t]
	r.mu.RUnlock()
	return b, ok
}

func (r *kindRegistry) keys() []reflect.Type {
	r.mu.RLock()
	out := make([]reflect.Type, 0, len(r.data))
	for t := range r.data {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].PkgPath()+"."+out[i].Name() < out[j].PkgPath()+"."+out[j].Name()
	})
	return out
}

// callerPackage returns the import path of the package skip frames up, or ""
// when it cannot be determined.
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return funcPackage(fn.Name())
}

// funcPackage extracts the package path from a symbol name such as
// "example.com/ext.init.0" or "gopkg.in/yaml%2ev3.(*T).M".
func funcPackage(name string) string {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return ""
	}
	return strings.ReplaceAll(name[:slash+1+dot], "%2e", ".")
}
