package model

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the fitted model to a file.
	Save(path string) error

	// Load loads a fitted model from a file.
	Load(path string) error
}

// ParamsExporter is implemented by models whose fitted state can be moved in
// and out as FittedParams.
type ParamsExporter interface {
	ExportParams() (*FittedParams, error)
	ImportParams(p *FittedParams) error
}
