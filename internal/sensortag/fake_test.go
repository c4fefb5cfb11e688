package sensortag

import (
	"context"
	"errors"

	"tinygo.org/x/bluetooth"
)

type writeCall struct {
	id   bluetooth.UUID
	data []byte
}

type fakeService struct {
	uuid   bluetooth.UUID
	chars  map[bluetooth.UUID][]byte
	status Status
	err    error

	writes []writeCall
	reads  []bluetooth.UUID
}

func newFakeService(kind Kind) *fakeService {
	ids := IdentifiersFor(kind)
	return &fakeService{
		uuid:  ids.Service,
		chars: map[bluetooth.UUID][]byte{ids.Data: nil},
	}
}

func (f *fakeService) UUID() bluetooth.UUID { return f.uuid }

func (f *fakeService) HasCharacteristic(id bluetooth.UUID) bool {
	_, ok := f.chars[id]
	return ok
}

func (f *fakeService) WriteCharacteristic(_ context.Context, id bluetooth.UUID, data []byte) (Status, error) {
	f.writes = append(f.writes, writeCall{id: id, data: append([]byte(nil), data...)})
	return f.status, f.err
}

func (f *fakeService) ReadCharacteristic(_ context.Context, id bluetooth.UUID) ([]byte, Status, error) {
	f.reads = append(f.reads, id)
	if f.status != StatusSuccess {
		return nil, f.status, f.err
	}
	data, ok := f.chars[id]
	if !ok {
		return nil, StatusFailure, errors.New("characteristic not found")
	}
	return data, StatusSuccess, nil
}

func (f *fakeService) calls() int { return len(f.writes) + len(f.reads) }
