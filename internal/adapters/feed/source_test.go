package feed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/graphboard/internal/adapters/feed"
)

func TestFileSource(t *testing.T) {
	Convey("Given a file source", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When the feed file does not exist", func() {
			src := feed.NewFileSource(filepath.Join(dir, "scores.txt"))
			_, err := src.Read(ctx)

			Convey("Then it is a missing input error", func() {
				So(errors.Is(err, feed.ErrMissingInput), ShouldBeTrue)
			})
		})

		Convey("When the feed file is empty", func() {
			path := filepath.Join(dir, "empty.txt")
			So(os.WriteFile(path, nil, 0o600), ShouldBeNil)
			b, err := feed.NewFileSource(path).Read(ctx)

			Convey("Then zero records is a success", func() {
				So(err, ShouldBeNil)
				So(b.Records, ShouldBeEmpty)
			})
		})

		Convey("When the path is a directory", func() {
			_, err := feed.NewFileSource(dir).Read(ctx)

			Convey("Then it is a missing input error", func() {
				So(errors.Is(err, feed.ErrMissingInput), ShouldBeTrue)
			})
		})

		Convey("When the feed has records", func() {
			path := filepath.Join(dir, "scores.txt")
			So(os.WriteFile(path, []byte("alice:0.9:0.7:0.2\ncarol:1:2\n"), 0o600), ShouldBeNil)
			src := feed.NewFileSource(path)
			b, err := src.Read(ctx)

			Convey("Then malformed lines carry the path", func() {
				So(err, ShouldBeNil)
				So(b.Records, ShouldHaveLength, 1)
				So(b.Malformed, ShouldHaveLength, 1)
				So(b.Malformed[0].Origin, ShouldEqual, path)
				So(src.Name(), ShouldEqual, path)
			})
		})

		Convey("When reading stdin", func() {
			src := feed.NewFileSource(feed.StdinPath, feed.WithStdin(strings.NewReader("bob:0.5:0.5:0\n")))
			b, err := src.Read(ctx)

			Convey("Then the injected reader is parsed", func() {
				So(err, ShouldBeNil)
				So(b.Records, ShouldHaveLength, 1)
				So(src.Name(), ShouldEqual, "stdin")
			})
		})
	})
}

// fakeReader replays messages and then blocks until the fetch context expires.
type fakeReader struct {
	msgs      []kafka.Message
	next      int
	committed []kafka.Message
	commitErr error
	fetchErr  error
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.fetchErr != nil {
		return kafka.Message{}, f.fetchErr
	}
	if f.next < len(f.msgs) {
		m := f.msgs[f.next]
		f.next++
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func msg(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "scores", Partition: 0, Offset: offset, Value: []byte(value)}
}

func TestKafkaSource(t *testing.T) {
	Convey("Given a kafka source over a fake reader", t, func() {
		ctx := context.Background()
		reader := &fakeReader{msgs: []kafka.Message{
			msg(0, "alice:0.9:0.7:0.2"),
			msg(1, "bob:0.8:0.8:0\nbroken"),
			msg(0, "alice:0.9:0.7:0.2"), // redelivery
			msg(2, `{"team":"carol","challenge_acc":0.7,"original_acc":0.6}`),
		}}
		src, err := feed.NewKafkaSource(
			feed.KafkaConfig{Topic: "scores", IdleTimeout: 20 * time.Millisecond},
			feed.WithReader(reader),
		)
		So(err, ShouldBeNil)

		Convey("When the topic is drained", func() {
			b, err := src.Read(ctx)

			Convey("Then records are collected until idle", func() {
				So(err, ShouldBeNil)
				So(b.Records, ShouldHaveLength, 3)
				So(b.Malformed, ShouldHaveLength, 1)
				So(b.Malformed[0].Origin, ShouldEqual, "scores/0/1")
				So(b.Duplicates, ShouldEqual, 1)
				So(src.Name(), ShouldEqual, "kafka:scores")
			})

			Convey("Then nothing is committed before Ack", func() {
				So(reader.committed, ShouldBeEmpty)
			})

			Convey("And Ack is called", func() {
				So(src.Ack(ctx), ShouldBeNil)

				Convey("Then every fetched message is committed once", func() {
					So(reader.committed, ShouldHaveLength, 4)
					So(src.Ack(ctx), ShouldBeNil)
					So(reader.committed, ShouldHaveLength, 4)
				})
			})
		})

		Convey("When commit fails", func() {
			reader.commitErr = errors.New("rebalance")
			_, _ = src.Read(ctx)

			Convey("Then Ack reports it", func() {
				So(src.Ack(ctx), ShouldNotBeNil)
			})
		})

		Convey("When the fetch fails hard", func() {
			reader.fetchErr = errors.New("broker down")
			_, err := src.Read(ctx)

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "broker down")
			})
		})

		Convey("When closed", func() {
			So(src.Close(), ShouldBeNil)
			So(reader.closed, ShouldBeTrue)
		})
	})

	Convey("Given incomplete kafka settings", t, func() {
		Convey("Then construction fails", func() {
			_, err := feed.NewKafkaSource(feed.KafkaConfig{})
			So(errors.Is(err, feed.ErrInvalidSource), ShouldBeTrue)

			_, err = feed.NewKafkaSource(feed.KafkaConfig{Topic: "scores"})
			So(errors.Is(err, feed.ErrInvalidSource), ShouldBeTrue)
		})
	})
}
