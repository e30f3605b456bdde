package game

type ErrOutOfGas struct {
}

func (e *ErrOutOfGas) Error() string {
	return "out of gas"
}

func IsOutOfGas(err error) bool {
	_, ok := err.(*ErrOutOfGas)
	return ok
}
