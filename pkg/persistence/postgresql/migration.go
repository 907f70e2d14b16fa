package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				display_title VARCHAR(255) NOT NULL DEFAULT '',
				time_active TIMESTAMP WITH TIME ZONE,
				time_deactive TIMESTAMP WITH TIME ZONE,
				sort_index INT NOT NULL DEFAULT 0,
				manual BOOLEAN NOT NULL DEFAULT false,
				rollback_delay_seconds BIGINT NOT NULL DEFAULT 0,
				finish_delay_seconds BIGINT NOT NULL DEFAULT 0,
				delay_for_all_workflows BOOLEAN NOT NULL DEFAULT false,
				include_delayed_courses BOOLEAN NOT NULL DEFAULT false,
				include_site_course BOOLEAN NOT NULL DEFAULT false,
				combinator VARCHAR(10) NOT NULL DEFAULT 'and' CHECK (combinator IN ('and', 'or')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_sort_index ON workflows(sort_index);

			CREATE TABLE trigger_instances (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				subplugin VARCHAR(255) NOT NULL,
				instance_name VARCHAR(255) NOT NULL,
				sort_index INT NOT NULL,
				UNIQUE (workflow_id, sort_index)
			);

			CREATE TABLE step_instances (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				subplugin VARCHAR(255) NOT NULL,
				instance_name VARCHAR(255) NOT NULL,
				sort_index INT NOT NULL,
				rollback_to INT,
				UNIQUE (workflow_id, sort_index)
			);

			CREATE TABLE processes (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				course_id BIGINT NOT NULL UNIQUE,
				step_index INT NOT NULL DEFAULT 0,
				waiting BOOLEAN NOT NULL DEFAULT false,
				time_step_changed TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_processes_workflow_id ON processes(workflow_id);

			CREATE TABLE process_errors (
				id UUID PRIMARY KEY,
				course_id BIGINT NOT NULL,
				workflow_id UUID NOT NULL,
				step_index INT NOT NULL,
				waiting BOOLEAN NOT NULL,
				time_step_changed TIMESTAMP WITH TIME ZONE NOT NULL,
				message TEXT NOT NULL,
				trace TEXT NOT NULL DEFAULT '',
				hash VARCHAR(64) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_process_errors_course_id ON process_errors(course_id);
			CREATE INDEX idx_process_errors_hash ON process_errors(hash);

			CREATE TABLE process_data (
				process_id UUID NOT NULL,
				name VARCHAR(255) NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (process_id, name)
			);

			CREATE TABLE delay_entries (
				id UUID PRIMARY KEY,
				course_id BIGINT NOT NULL,
				workflow_id UUID,
				delayed_until TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (course_id, workflow_id)
			);

			CREATE UNIQUE INDEX idx_delay_entries_global
				ON delay_entries(course_id) WHERE workflow_id IS NULL;
			CREATE INDEX idx_delay_entries_delayed_until ON delay_entries(delayed_until);

			CREATE TABLE settings (
				instance_id UUID NOT NULL,
				kind VARCHAR(10) NOT NULL CHECK (kind IN ('trigger', 'step')),
				name VARCHAR(255) NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (instance_id, kind, name)
			);
		`,
	}
}
