package catalog

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/image/riff"
)

/*
typedef struct tagLOGPALETTE {
  WORD         palVersion;
  WORD         palNumEntries;
  PALETTEENTRY palPalEntry[1];
} LOGPALETTE;
*/

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

const palVersion = 3

// WritePAL writes the catalog colors as a RIFF PAL document, the palette
// format understood by most paint programs. Records keep catalog order.
func WritePAL(w io.Writer, cat Catalog) (int64, error) {
	if len(cat) > 0xffff {
		return 0, fmt.Errorf("too many colors for a PAL document: %d", len(cat))
	}

	chunkSize := 4 + len(cat)*4
	docSize := 4 + 4 + 4 + chunkSize // form type + chunk id + chunk size + chunk

	buf := make([]byte, 0, 8+docSize)
	buf = append(buf, riffType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(docSize))
	buf = append(buf, palType[:]...)
	buf = append(buf, dataType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(chunkSize))
	buf = append(buf, 0, palVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(cat)))
	for _, rec := range cat {
		buf = append(buf, rec.Color.R, rec.Color.G, rec.Color.B, 0x00)
	}

	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("could not write palette: %w", err)
	} else if n != len(buf) {
		return int64(n), fmt.Errorf("wrote only %d/%d bytes", n, len(buf))
	}
	return int64(n), nil
}

// ReadPAL reads every color of every data chunk of a RIFF PAL document.
func ReadPAL(r io.Reader) ([]RGB, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	} else if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %s", string(formType[:]))
	}

	var res []RGB
	for chunk := 0; ; chunk++ {
		id, _, data, err := rd.Next()
		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return res, fmt.Errorf("could not read chunk #%d: %w", chunk, err)
		}

		if id != dataType {
			return res, fmt.Errorf("unsupported chunk type in #%d: %s", chunk, string(id[:]))
		}

		if res, err = readPALChunk(data, res); err != nil {
			return res, fmt.Errorf("could not read chunk #%d: %w", chunk, err)
		}
	}
}

func readPALChunk(r io.Reader, res []RGB) ([]RGB, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return res, fmt.Errorf("could not read header: %w", err)
	}

	if ver := binary.BigEndian.Uint16(head[:2]); ver != palVersion {
		return res, fmt.Errorf("unsupported palette version: %d", ver)
	}

	count := binary.LittleEndian.Uint16(head[2:])
	var entry [4]byte
	for i := range count {
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return res, fmt.Errorf("could not read color %d/%d: %w", i, count, err)
		}
		res = append(res, RGB{R: entry[0], G: entry[1], B: entry[2]})
	}
	return res, nil
}
