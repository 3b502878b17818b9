package graph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ConvertAll loads each input in its own wide graph and saves it again in
// the byte order named by toBigEndian. Graphs share no state, so up to
// limit inputs are converted at once; limit <= 0 means no bound. The first
// failure cancels the remaining conversions.
func ConvertAll[T any, P Object[T]](ctx context.Context, inputs [][]byte, fromBigEndian, toBigEndian bool, limit int, opts ...Option) ([][]byte, error) {
	out := make([][]byte, len(inputs))
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, in := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := convert[T, P](in, fromBigEndian, toBigEndian, opts)
			if err != nil {
				return err
			}
			out[i] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func convert[T any, P Object[T]](in []byte, fromBigEndian, toBigEndian bool, opts []Option) ([]byte, error) {
	g := NewWide(opts...)
	defer g.Close()

	root, err := Load[T, P](g, in, fromBigEndian)
	if err != nil {
		return nil, err
	}
	img, err := Save[T, P](g, root, toBigEndian)
	if err != nil {
		return nil, err
	}
	if err := Detach[T, P](g, root, nil); err != nil {
		return nil, err
	}
	return img.Data, nil
}
