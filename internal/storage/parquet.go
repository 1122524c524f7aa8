package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"orderpulse/internal/errors"
)

// parquetParallelism is the number of goroutines parquet-go uses per file
const parquetParallelism = 4

// WriteParquet writes rows to path as a snappy-compressed parquet file.
// T must be a struct with parquet tags. The file is written next to path and
// renamed into place, so readers never observe a partial file.
func WriteParquet[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+path, err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errors.NewStorageError("failed to create "+tmp, err)
	}

	fail := func(msg string, cause error) error {
		file.Close()
		os.Remove(tmp)
		return errors.NewStorageError(msg, cause)
	}

	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(T), parquetParallelism)
	if err != nil {
		return fail("failed to build parquet schema for "+path, err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			pw.WriteStop()
			return fail(fmt.Sprintf("failed to write row %d of %s", i, path), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fail("failed to flush "+path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError("failed to close "+tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError("failed to move "+tmp+" into place", err)
	}
	return nil
}

// ReadParquet reads every row of a parquet file written by WriteParquet
func ReadParquet[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError(path)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open "+path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), parquetParallelism)
	if err != nil {
		return nil, errors.NewStorageError("failed to read parquet footer of "+path, err)
	}
	defer pr.ReadStop()

	rows := make([]T, int(pr.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, errors.NewStorageError("failed to read rows of "+path, err)
	}
	return rows, nil
}
