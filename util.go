package cardano

import (
	"os"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Info().Msgf("error checking file: %v", err)
		}
		return false
	}
	return true
}
