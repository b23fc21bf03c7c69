//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/nexa-labs/crosscheck --repository.default-branch master --repository.path /

package crosscheck
