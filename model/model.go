package model

// Option is a selectable answer. Options are shared between surveys.
type Option struct {
	ID   int64
	Name *string
}

// Survey references any number of options through the survey_option join table.
type Survey struct {
	ID        int64
	Name      *string
	Comment   *string
	OptionIDs []int64
}
