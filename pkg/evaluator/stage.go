package evaluator

// Classify maps the missing dimensions and iteration count to a learning stage.
// Rules are a priority list: the first one that matches wins.
func Classify(missing []Dimension, previousIterations int) Stage {
	switch {
	case previousIterations <= 0:
		return StageOnboarding
	case containsDimension(missing, DimensionContext):
		return StageFundamentals
	case containsDimension(missing, DimensionOutputFormat), containsDimension(missing, DimensionConstraints):
		return StageStructure
	case containsDimension(missing, DimensionScope):
		return StageControl
	case previousIterations > 1:
		return StageReflection
	default:
		return StageControl
	}
}

// ValidStage reports whether stage is one of the known learning stages.
func ValidStage(stage Stage) bool {
	for _, known := range Stages {
		if known == stage {
			return true
		}
	}
	return false
}
