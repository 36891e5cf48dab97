package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*Model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *Model) {
		m.Name = name
	}
}

// WithMeshes is an option builder that sets the sub-meshes of the Model.
//
// Parameters:
//   - meshes: the meshes to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...Mesh) ModelBuilderOption {
	return func(m *Model) {
		m.Meshes = meshes
	}
}

// WithMaterials is an option builder that sets the material list of the Model.
// Leave it out to render every mesh with the default material.
//
// Parameters:
//   - materials: the materials to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(materials ...Material) ModelBuilderOption {
	return func(m *Model) {
		m.Materials = materials
	}
}
