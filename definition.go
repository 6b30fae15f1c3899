package rts

// SourceRule contributes files only when When evaluates to true against the
// final capabilities of the descriptor being built.
type SourceRule struct {
	When          string   `toml:"when"`
	Core          []string `toml:"core,omitempty"`
	Extended      []string `toml:"extended,omitempty"`
	LinkerScripts []string `toml:"linker_scripts,omitempty"`
}

// Definition is the declarative input for one descriptor layer. Zero values
// mean "inherit": scalars left empty keep the value of the more general
// layer and lists are appended to the inherited ones.
type Definition struct {
	Name            string
	Base            string
	Capabilities    Capabilities
	IOMode          IOMode
	Loaders         []Loader `merge:"replace"`
	SystemFiles     map[Profile]string
	CoreSources     []string
	ExtendedSources []string
	LinkerScripts   []string
	Rules           []SourceRule
}

// AddCoreSources appends names to the core source list.
func (d *Definition) AddCoreSources(names ...string) {
	d.CoreSources = append(d.CoreSources, names...)
}

// AddExtendedSources appends names to the tasking source list.
func (d *Definition) AddExtendedSources(names ...string) {
	d.ExtendedSources = append(d.ExtendedSources, names...)
}

// AddLinkerScripts appends names to the linker script list.
func (d *Definition) AddLinkerScripts(names ...string) {
	d.LinkerScripts = append(d.LinkerScripts, names...)
}
