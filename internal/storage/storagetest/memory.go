// Package storagetest provee un Gateway en memoria para tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNoSuchBucket = errors.New("no such bucket")

// Memory guarda objetos en memoria y cuenta las llamadas.
type Memory struct {
	Buckets   map[string]bool
	Versioned bool
	Objects   map[string][]byte

	BucketErr     error
	VersioningErr error
	PutErr        error
	HeadErr       error

	BucketCalls     int
	VersioningCalls int
	PutCalls        int
	HeadCalls       int

	versions map[string]int
}

func NewMemory(buckets ...string) *Memory {
	m := &Memory{
		Buckets:  map[string]bool{},
		Objects:  map[string][]byte{},
		versions: map[string]int{},
	}
	for _, b := range buckets {
		m.Buckets[b] = true
	}
	return m
}

func (m *Memory) BucketExists(_ context.Context, bucket string) error {
	m.BucketCalls++
	if m.BucketErr != nil {
		return m.BucketErr
	}
	if !m.Buckets[bucket] {
		return fmt.Errorf("%w: %s", ErrNoSuchBucket, bucket)
	}
	return nil
}

func (m *Memory) VersioningEnabled(_ context.Context, _ string) (bool, error) {
	m.VersioningCalls++
	if m.VersioningErr != nil {
		return false, m.VersioningErr
	}
	return m.Versioned, nil
}

func (m *Memory) Put(_ context.Context, bucket, key string, body io.Reader, _ int64) error {
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	id := bucket + "/" + key
	m.Objects[id] = b
	m.versions[id]++
	return nil
}

func (m *Memory) ObjectVersion(_ context.Context, bucket, key string) (string, error) {
	m.HeadCalls++
	if m.HeadErr != nil {
		return "", m.HeadErr
	}
	id := bucket + "/" + key
	if _, ok := m.Objects[id]; !ok {
		return "", fmt.Errorf("no such key: %s", id)
	}
	return fmt.Sprintf("v%d", m.versions[id]), nil
}
