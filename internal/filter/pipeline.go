package filter

import "fmt"

// Pipeline applies a fixed sequence of filters to chunk data.
type Pipeline struct {
	filters []Filter
}

// NewPipeline creates a filter pipeline from recorded filter metadata.
func NewPipeline(infos []Info) (*Pipeline, error) {
	if len(infos) == 0 {
		return &Pipeline{}, nil
	}

	p := &Pipeline{
		filters: make([]Filter, 0, len(infos)),
	}

	for _, info := range infos {
		f, err := New(info)
		if err != nil {
			return nil, fmt.Errorf("creating filter %d: %w", info.ID, err)
		}
		p.filters = append(p.filters, f)
	}

	return p, nil
}

// Encode applies the filters in pipeline order to raw chunk data.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("%s encode: %w", f.Name(), err)
		}
	}
	return data, nil
}

// Decode applies the filters in reverse order (last filter first)
// to recover raw chunk data.
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s decode: %w", p.filters[i].Name(), err)
		}
	}
	return data, nil
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
